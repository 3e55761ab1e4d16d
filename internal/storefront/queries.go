package storefront

const imageFields = `id url altText width height`

const productQuery = `query QuickViewProduct($handle: String!) {
  product(handle: $handle) {
    id
    title
    handle
    description
    availableForSale
    tags
    options { name values }
    priceRange { minVariantPrice { amount currencyCode } }
    images(first: 4) { nodes { ` + imageFields + ` } }
    variants(first: 50) {
      nodes {
        id title availableForSale
        price { amount currencyCode }
        compareAtPrice { amount currencyCode }
        selectedOptions { name value }
        image { ` + imageFields + ` }
      }
    }
  }
}`

const productsQuery = `query AllProducts($first: Int!, $after: String) {
  products(first: $first, after: $after, sortKey: CREATED_AT, reverse: true) {
    nodes {
      id
      title
      handle
      availableForSale
      tags
      options { name values }
      priceRange { minVariantPrice { amount currencyCode } }
      images(first: 2) { nodes { ` + imageFields + ` } }
      variants(first: 1) {
        nodes {
          id title availableForSale
          price { amount currencyCode }
          compareAtPrice { amount currencyCode }
          selectedOptions { name value }
        }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

const cartFields = `fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount { amount currencyCode }
    totalAmount { amount currencyCode }
  }
  lines(first: 100) {
    nodes {
      id
      quantity
      cost { totalAmount { amount currencyCode } }
      merchandise { ... on ProductVariant { id title product { title } } }
    }
  }
  discountCodes { code applicable }
  appliedGiftCards { id lastCharacters amountUsed { amount currencyCode } }
}`

const cartPayload = `{ cart { ...CartFields } userErrors { field message } }`

const cartCreateMutation = `mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) ` + cartPayload + `
}
` + cartFields

const cartLinesAddMutation = `mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) ` + cartPayload + `
}
` + cartFields

const cartDiscountCodesUpdateMutation = `mutation CartDiscountCodesUpdate($cartId: ID!, $discountCodes: [String!]!) {
  cartDiscountCodesUpdate(cartId: $cartId, discountCodes: $discountCodes) ` + cartPayload + `
}
` + cartFields

// Appends to the cart's gift cards. Available from API version 2025-10.
const cartGiftCardCodesAddMutation = `mutation CartGiftCardCodesAdd($cartId: ID!, $giftCardCodes: [String!]!) {
  cartGiftCardCodesAdd(cartId: $cartId, giftCardCodes: $giftCardCodes) ` + cartPayload + `
}
` + cartFields

const cartGiftCardCodesRemoveMutation = `mutation CartGiftCardCodesRemove($cartId: ID!, $appliedGiftCardIds: [ID!]!) {
  cartGiftCardCodesRemove(cartId: $cartId, appliedGiftCardIds: $appliedGiftCardIds) ` + cartPayload + `
}
` + cartFields
